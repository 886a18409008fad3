package store

import (
    "context"
    "fmt"
    "time"

    "fzclean/internal/auth"
    "fzclean/internal/model"
)

// Seed loads demo fixtures into a fresh memory store: two customers,
// two orders, a couple of employees. Counters are set so generated
// numbers continue after the seeded ones.
func (m *Memory) Seed(ctx context.Context) {
    year := time.Now().UTC().Year()

    c1, _ := m.CreateCustomer(ctx, model.Customer{
        ID: "CUST-POL1735689600123", FranchiseID: "pollachi",
        Name: "Ravi Shankar", Phone: "+91 98430 11111",
        Address: "12 Thadagam Road, Pollachi",
    })
    c2, _ := m.CreateCustomer(ctx, model.Customer{
        ID: "CUST-KIN1735689700456", FranchiseID: "kinathukadavu",
        Name: "Meena Krishnan", Phone: "+91 98430 22222",
        Address: "5 Market Street, Kinathukadavu",
    })

    n1 := fmt.Sprintf("FZC-%dPOL0007A", year)
    m.CreateOrder(ctx, model.Order{
        OrderNumber: n1, FranchiseID: "pollachi",
        CustomerID: c1.ID, CustomerName: c1.Name,
        Items: []model.OrderItem{
            {Barcode: n1 + "-01-D4K7", Name: "Shirts", Service: "wash_fold", Quantity: 5, Price: 40},
            {Barcode: n1 + "-02-M2P9", Name: "Silk Saree", Service: "dry_clean", Quantity: 1, Price: 250},
        },
        Status: model.OrderReceived, TotalAmount: 450,
        DeliveryAddress: c1.Address,
        DeliveryLocation: &model.GeoPoint{Lat: 10.6612, Lng: 77.0134},
    })
    m.SetSequence(ctx, "POL", year, 7, 'A')

    n2 := fmt.Sprintf("FZC-%dKIN0003A", year)
    m.CreateOrder(ctx, model.Order{
        OrderNumber: n2, FranchiseID: "kinathukadavu",
        CustomerID: c2.ID, CustomerName: c2.Name,
        Items: []model.OrderItem{
            {Barcode: n2 + "-01-Q8R2", Name: "Bedsheets", Service: "wash_fold", Quantity: 3, Price: 60},
        },
        Status: model.OrderReady, TotalAmount: 180,
        DeliveryAddress: c2.Address,
        DeliveryLocation: &model.GeoPoint{Lat: 10.8241, Lng: 77.0189},
    })
    m.SetSequence(ctx, "KIN", year, 3, 'A')

    adminSalt := auth.NewSalt()
    m.CreateEmployee(ctx, model.Employee{
        FranchiseID: "pollachi", Name: "Admin", Email: "admin@fzclean.in",
        Role: model.RoleAdmin, PasswordSalt: adminSalt,
        PasswordHash: auth.HashPassword("admin123", adminSalt),
    })
    staffSalt := auth.NewSalt()
    m.CreateEmployee(ctx, model.Employee{
        FranchiseID: "pollachi", Name: "Counter Staff", Email: "staff.pollachi@fzclean.in",
        Role: model.RoleStaff, PasswordSalt: staffSalt,
        PasswordHash: auth.HashPassword("staff123", staffSalt),
    })
}
